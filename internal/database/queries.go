package database

// Key-value snapshot queries
const (
	GetEntrySQL = `
		SELECT value FROM kv_entries WHERE key_name = $1`

	UpsertEntrySQL = `
		INSERT INTO kv_entries (key_name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key_name) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()`

	DeleteEntrySQL = `
		DELETE FROM kv_entries WHERE key_name = $1`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (id, number, customer_name, email, phone, address, delivery_method,
			payment_method, subtotal, delivery_fees, service_fees, tip, tax, total_amount,
			priority, status, group_order_name, scheduled_for, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, position, restaurant_id, restaurant_name, item_id,
			name, quantity, unit_price, special_instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`

	GetOrderByNumberSQL = `
		SELECT id, number, customer_name, email, phone, address, delivery_method, payment_method,
			   subtotal, delivery_fees, service_fees, tip, tax, total_amount, priority, status,
			   group_order_name, scheduled_for, created_at
		FROM orders WHERE number = $1`

	GetOrderItemsSQL = `
		SELECT restaurant_id, restaurant_name, item_id, name, quantity, unit_price, special_instructions
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC`

	GetLastOrderSequenceSQL = `
		SELECT COALESCE(MAX(CAST(SUBSTRING(number FROM 'ORD_[0-9]{8}_([0-9]+)') AS INTEGER)), 0)
		FROM orders
		WHERE number LIKE $1`
)

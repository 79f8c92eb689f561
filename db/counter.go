package db

import "database/sql"

// nextCounter 在事务中检索当前计数器值并将其加一。
func nextCounter(tx *sql.Tx, name string) (int, error) {
	var current int
	err := tx.QueryRow("SELECT current_value FROM id_counter WHERE counter_name = ?", name).Scan(&current)
	if err == sql.ErrNoRows {
		_, err = tx.Exec("INSERT INTO id_counter(counter_name, current_value) VALUES(?, 0)", name)
		current = 0
	}
	if err != nil {
		return 0, err
	}

	next := current + 1
	_, err = tx.Exec("UPDATE id_counter SET current_value = ? WHERE counter_name = ?", next, name)
	if err != nil {
		return 0, err
	}

	return next, nil
}

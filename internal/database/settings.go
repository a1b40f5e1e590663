package database

import "context"

const getStoreSetting = `
SELECT key, value, updated_at FROM store_settings WHERE key = $1
`

func (q *Queries) GetStoreSetting(ctx context.Context, key string) (StoreSetting, error) {
	row := q.db.QueryRow(ctx, getStoreSetting, key)
	var s StoreSetting
	err := row.Scan(&s.Key, &s.Value, &s.UpdatedAt)
	return s, err
}

const listStoreSettings = `
SELECT key, value, updated_at FROM store_settings ORDER BY key
`

func (q *Queries) ListStoreSettings(ctx context.Context) ([]StoreSetting, error) {
	rows, err := q.db.Query(ctx, listStoreSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var settings []StoreSetting
	for rows.Next() {
		var s StoreSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

const upsertStoreSetting = `
INSERT INTO store_settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
RETURNING key, value, updated_at
`

type UpsertStoreSettingParams struct {
	Key   string
	Value string
}

func (q *Queries) UpsertStoreSetting(ctx context.Context, arg UpsertStoreSettingParams) (StoreSetting, error) {
	row := q.db.QueryRow(ctx, upsertStoreSetting, arg.Key, arg.Value)
	var s StoreSetting
	err := row.Scan(&s.Key, &s.Value, &s.UpdatedAt)
	return s, err
}

package storage

import "testing"

func TestRebind(t *testing.T) {
	pg := &DB{dialect: Postgres}
	if got := pg.rebind(`UPDATE t SET a = ?, b = ? WHERE id = ?`); got != `UPDATE t SET a = $1, b = $2 WHERE id = $3` {
		t.Errorf("postgres rebind = %s", got)
	}
	lite := &DB{dialect: SQLite}
	if got := lite.rebind(`SELECT ?`); got != `SELECT ?` {
		t.Errorf("sqlite rebind = %s", got)
	}
}

func TestUpsert(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{SQLite, "INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT (k) DO UPDATE SET v = excluded.v"},
		{Postgres, "INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT (k) DO UPDATE SET v = excluded.v"},
		{MySQL, "INSERT INTO kv (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)"},
	}
	for _, tt := range tests {
		db := &DB{dialect: tt.dialect}
		if got := db.upsert("kv", "k", "v"); got != tt.want {
			t.Errorf("%s: got %s", tt.dialect, got)
		}
	}
}

func TestDSNs(t *testing.T) {
	o := Options{Host: "db", Database: "board", Username: "u", Password: "p", SSLMode: "require"}
	if got := mysqlDSN(o); got != "u:p@tcp(db:3306)/board?parseTime=true&loc=UTC&charset=utf8mb4&tls=true" {
		t.Errorf("mysql dsn = %s", got)
	}
	if got := postgresDSN(o); got != "host=db port=5432 user=u password=p dbname=board sslmode=require" {
		t.Errorf("postgres dsn = %s", got)
	}
	if got := mongoURI(MongoOptions{URI: "mongodb+srv://u:<password>@c.example.net", Password: "p"}); got != "mongodb+srv://u:p@c.example.net" {
		t.Errorf("mongo uri = %s", got)
	}
	if got := mongoURI(MongoOptions{Host: "m"}); got != "mongodb://m:27017" {
		t.Errorf("mongo uri = %s", got)
	}
}

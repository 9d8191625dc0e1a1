package judge

import (
	"github.com/elmanelman/solution-judge/config"
	"github.com/elmanelman/solution-judge/templates"
	_ "github.com/godror/godror"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func connectDB(cfg config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.DriverName(), cfg.ConnectionString())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if cfg.DriverName() == config.DriverSQLite {
		// sqlite serializes writers; a single connection also keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// connectMainDB also creates the subtask table on sqlite. Oracle schemas are
// provisioned by migrations outside this service.
func connectMainDB(cfg config.DBConfig) (*sqlx.DB, error) {
	db, err := connectDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.DriverName() == config.DriverSQLite {
		if _, err := db.Exec(templates.SchemaSQLite); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

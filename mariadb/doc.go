// Package mariadb connects to MariaDB or MySQL through gorm and installs the gorm
// plugins that turn model writes into events.
//
//	db, err := mariadb.NewMariaDB(cfg, observer.NewGormPlugin(table))
//	if err != nil {
//		return err
//	}
//	defer db.GracefulShutdown()
//
// Messages published for writes through this package carry "mysql" as their source,
// the name of the gorm dialector. Plugins are installed again whenever the
// connection is replaced after a failed health check.
package mariadb

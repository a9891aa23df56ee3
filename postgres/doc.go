// Package postgres connects to PostgreSQL through gorm and installs the gorm plugins
// that turn model writes into events.
//
//	table, err := observer.NewTable(observer.Config{
//		Source:    "postgres",
//		Producers: map[string]map[string]string{"Member": {"member": "member"}},
//	}, producer)
//	if err != nil {
//		return err
//	}
//
//	pg, err := postgres.NewPostgres(cfg, observer.NewGormPlugin(table))
//	if err != nil {
//		return err
//	}
//	defer pg.GracefulShutdown()
//
//	// publishes member/created to the "member" topic
//	err = pg.Create(ctx, &Member{Name: "Ada"})
//
// MonitorConnection pings the database and RetryConnection swaps in a new connection
// after a failure. Plugins are installed again on every new connection.
package postgres

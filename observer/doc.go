// Package observer turns domain lifecycle changes and application events into
// published messages.
//
// Models are registered by name in Config.Producers. With gorm the registration is
// automatic once the plugin is installed:
//
//	table, err := observer.NewTable(cfg, producer, observer.WithTableLogger(log))
//	if err != nil {
//		return err
//	}
//	if err := db.Use(observer.NewGormPlugin(table)); err != nil {
//		return err
//	}
//
// Application events go through a Dispatcher:
//
//	d := observer.NewDispatcher()
//	_ = table.Register(d) // "member" listener now serves "member.*"
//	d.Dispatch(ctx, "member.visited", visit)
//
// Observers never return errors. A message that cannot be published is logged and,
// when an Archive is configured, stored there.
package observer

// Package app launches a service around a lifecycle.
//
// An Application lists Modules. Each module registers commands against the
// lifecycle stages through a Binder; Launch then builds the lifecycle,
// starts it, calls Application.Run and waits until the lifecycle has been
// stopped by a signal, by ctx, or by a collaborator holding the
// lifecycle.Controller.
//
// # Usage
//
//	greeter := app.ModuleFunc(func(b *app.Binder) error {
//	    b.OnRunning(lifecycle.Named("hello", func() error {
//	        fmt.Println("hello")
//	        return nil
//	    }))
//	    return nil
//	})
//
//	if err := app.Launch(ctx, app.Service(greeter), app.WithLogger(logger)); err != nil {
//	    os.Exit(1)
//	}
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package app

// Package bootguard runs quick reboot detection once per boot.
//
// A Guard owns the storage, the window timer, the reboot counter and the
// factory reset action, and reports what happened to a journal and a metrics
// recorder:
//
//	guard, err := bootguard.New(bootguard.Config{
//	    Backend:   nvs.NewBoltBackend("/var/lib/quickreset/nvs.db"),
//	    Namespace: "iotkit-kv",
//	    Journal:   fileLogger,
//	})
//	res, err := guard.Run()
//	guard.Wait(ctx) // until the window elapsed
//	guard.Close()
//
// Storage failures never stop the boot: Run reports StateDisabled and
// returns the error for logging.
package bootguard

// Package stepperd drives a 4-phase stepper motor through a ULN2003
// class driver board, gated by a debounced push button.
//
// Example usage:
//
//	cfg := stepperd.DefaultConfig()
//	cfg.Driver = "sim"
//	d, err := stepperd.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := d.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until the context is canceled or a fatal hardware
// condition stops the drive; either way every pin is released before
// it returns.
package stepperd

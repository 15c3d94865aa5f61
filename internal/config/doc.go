// Package config loads vsync.json, the settings file shared by the vsync
// commands.
//
// The file is looked up in the working directory and then in each parent.
// Every field is optional; missing fields take the values returned by New.
//
// # Configuration File Structure
//
//	{
//	  "reconcile": {
//	    "keyPolicy": "warn",
//	    "propRemoval": "falsy",
//	    "validate": true
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "vsync"
//	  },
//	  "serve": {
//	    "host": "localhost",
//	    "port": 7331,
//	    "interval": "2s"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := vdom.NewReconciler(doc, append(cfg.ReconcilerOptions(),
//	    vdom.WithLogger(cfg.Logger(os.Stderr)))...)
package config

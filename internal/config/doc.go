// Package config provides configuration parsing for domsync.
//
// The configuration is stored in domsync.json (or domsync.yaml) at the
// project root. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "markers": {
//	    "islands": true,
//	    "prefix": "island:"
//	  },
//	  "logging": {
//	    "level": "debug",
//	    "format": "json"
//	  },
//	  "server": {
//	    "port": 7070,
//	    "host": "localhost",
//	    "document": "index.html",
//	    "watch": "candidate.html",
//	    "pollInterval": "250ms"
//	  },
//	  "metrics": { "enabled": true, "namespace": "domsync" },
//	  "tracing": { "enabled": false }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := cfg.Logger(os.Stderr)
//	logger.Info("serving", "addr", cfg.Address())
package config

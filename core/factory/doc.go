// Package factory instantiates pluggable modules from configuration.
//
// A module is described by a type name and a map of raw settings, as found
// under the `solver` and `metrics` sections of the configuration file:
//
//	solver:
//	  type: branch_and_bound
//	  conf:
//	    max_nodes: 2000
//
// Packages owning a module kind keep a Registry and register one Factory per
// implementation; factories decode their settings with Decode.
package factory

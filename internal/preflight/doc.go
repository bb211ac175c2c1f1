// Package preflight runs cheap, local checks of the directories archivist
// depends on before a sync run touches the network. These complement
// health:check's source/sink reachability probes, which require
// credentials and a network round trip; preflight checks require neither.
package preflight

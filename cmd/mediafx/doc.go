// Command mediafx composes and renders video timelines through a host
// editing engine.
//
// Commands:
//
//	render MANIFEST   apply a timeline manifest and render it
//	inspect MANIFEST  dry-run a manifest and print the resolved entries
//	history           list recent renders from the journal
//	doctor            check directories and external binaries
//	config init       write a sample configuration
//	config validate   load and validate the configuration
package main

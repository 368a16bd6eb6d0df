// Package cli is the interactive front-end of the TransferGuard client.
//
// The REPL understands:
//
//	help                     show available commands
//	send <path>              encrypt and store a file, print its transfer id
//	receive <id> <out>       fetch, verify and decrypt a transfer into out
//	list                     list transfers, newest first
//	show <id>                show a transfer and its chunks
//	delete <id>              remove stored frames and the manifest entry
//	exit | quit              leave the program
//
// The same commands can be run once from the command line (see App.Exec).
// Passphrases are read without echo when stdin is a terminal.
package cli

// Command storycast is the CLI for the storycast daemon. It talks to a
// running daemon over the IPC socket and falls back to direct queue store
// access for read and cleanup operations when the daemon is down.
package main

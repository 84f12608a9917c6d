package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (runtime failure, aborted stage)
	ExitConfigError = 2 // Configuration error (bad chain, unknown stage, bad option)
	ExitDataError   = 3 // Data error (malformed input file)
)

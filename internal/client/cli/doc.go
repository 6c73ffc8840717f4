// Package cli implements authctl, the command-line client of the session
// service.
//
// Without positional arguments it starts an interactive REPL that keeps the
// session obtained by "login" in memory, so "profile", "validate", "refresh"
// and "logout" can run against it. With arguments it runs a single command
// and exits:
//
//	authctl [-a addr] [-t seconds] register
//	authctl [-a addr] login
//	authctl [-a addr] refresh <refreshToken>
//	authctl [-a addr] logout <userId> <accessToken>
//	authctl [-a addr] validate <accessToken>
//
// Usernames and passwords are always prompted for; passwords are read
// without echo when stdin is a terminal.
package cli

// Package logs reads the rotating bookscore log file for the "bookscore
// logs" command.
//
// Tail returns the last N lines or everything after a byte offset, and
// Follow polls for appended lines until its context ends. Both restart from
// the beginning of the file when lumberjack rotates it underneath them.
package logs

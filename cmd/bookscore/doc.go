// Package main hosts the bookscore CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into calls against the
// scoring backend: listing and inspecting jobs, walking the upload wizard,
// scaffolding configuration, and running the local development backend.
// Configuration, logging, and the backend client are resolved lazily in
// commandContext so each subcommand only deals with presentation.
package main

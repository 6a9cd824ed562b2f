// Package file persists document units as markdown files on the local filesystem.
//
// Each run owns a directory beneath the documents folder:
//
//	<documents>/<run-id>/
//	    ticket-from-PROJ-1-issue1-content.md
//	    prd-from-PROJ-1-attachment1-content.md
//	    manifest.toml
//	    final-content.md
//
// manifest.toml records append order so that a later process (resolve,
// consolidate) sees units in the order they were stored.
package file

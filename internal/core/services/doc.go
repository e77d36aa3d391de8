// Package services implements the driving port interfaces.
// Services contain the pipeline logic (ingestion, question answering,
// chat logging, settings) and orchestrate calls to driven ports.
//
// Services never import adapters; every collaborator is injected
// through a driven port at construction time.
package services

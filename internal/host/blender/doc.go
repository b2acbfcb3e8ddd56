// Package blender drives a background Blender process as the host engine.
//
// Start launches `blender --background --factory-startup --python` with an
// embedded bridge script. The bridge reads one JSON request per line on
// stdin and answers on stdout with lines prefixed by "@@mediafx ", which
// keeps its replies apart from Blender's own console output. Unprefixed
// lines are logged at debug level.
//
// Operator outcomes come back as result sets exactly as Blender reports
// them. A RuntimeError raised by an operator (for example "could not be
// loaded") is reported as {CANCELLED} with the message attached, while poll
// failures and area errors map onto the host package's sentinel errors.
package blender

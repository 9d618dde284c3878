// Package webui serves the interactive k-space viewer over HTTP. It
// owns the pipeline wiring: uploaded or watched images run through the
// forward transform, pointer gestures from the websocket drive the
// overlay controller, committed masks become reconstruction requests,
// and results stream back to every connected client.
package webui

//go:build js && wasm
// +build js,wasm

// The browser-side widget runtime: connects to the demo server's session
// socket and applies every incoming delta to a map widget rendered into
// the page's container element.
package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"leafmap/api"
	"leafmap/leaflet"
	"leafmap/widget"
)

func main() {
	container, err := leaflet.ContainerByID(widget.ElementID)
	if err != nil {
		fmt.Println("widget runtime:", err)
		return
	}

	w := widget.New(leaflet.Default(), container)

	loc := js.Global().Get("location")
	scheme := "ws"
	if loc.Get("protocol").String() == "https:" {
		scheme = "wss"
	}
	url := fmt.Sprintf("%s://%s/ws", scheme, loc.Get("host").String())

	ws := js.Global().Get("WebSocket").New(url)
	onMessage := js.FuncOf(func(this js.Value, args []js.Value) any {
		var msg api.WSMessage
		if err := json.Unmarshal([]byte(args[0].Get("data").String()), &msg); err != nil {
			fmt.Println("widget runtime: bad message:", err)
			return nil
		}
		if msg.Type != api.MessageTypeDelta {
			return nil
		}
		var dd api.DeltaData
		if err := json.Unmarshal(msg.Data, &dd); err != nil {
			fmt.Println("widget runtime: bad delta:", err)
			return nil
		}
		w.ApplyDelta(dd.Delta)
		return nil
	})
	ws.Set("onmessage", onMessage)

	// Keep the runtime alive for the page's lifetime.
	select {}
}

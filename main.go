/*
This is an example of application that will use the
engine package to run a headless try-on storefront
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spaghettifunk/atelier/engine"
	"github.com/spaghettifunk/atelier/engine/catalog"
	"github.com/spaghettifunk/atelier/engine/core"
	"github.com/spaghettifunk/atelier/engine/math"
	"github.com/spaghettifunk/atelier/engine/session"
)

const demoExportPayload = `{"source":"readyplayerme","eventName":"v1.avatar.exported","data":{"url":"https://models.readyplayer.me/64f0267d35b4e50fc4f9f8b2.glb"}}`

func main() {
	configPath := flag.String("config", "", "path of the application config TOML")
	demo := flag.Bool("demo", false, "simulate a creation-surface avatar export on startup")
	flag.Parse()

	config := engine.DefaultConfig()
	if *configPath != "" {
		loaded, err := engine.LoadConfig(*configPath)
		if err != nil {
			panic(err)
		}
		config = loaded
	}

	app, err := engine.New(config)
	if err != nil {
		panic(err)
	}

	if err := app.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		_ = app.Shutdown()
	}()

	if *demo {
		go runDemo(app)
	}

	// run application
	if err := app.Run(); err != nil {
		panic(err)
	}
}

// runDemo plays one shopper session: an avatar export from the creation
// surface, then a randomly picked garment tried on against it.
func runDemo(app *engine.Application) {
	time.Sleep(500 * time.Millisecond)
	app.Adapter().Inbound() <- session.Message{
		Origin: "https://demo.readyplayer.me",
		Data:   demoExportPayload,
	}

	// Leave the avatar load some time before dressing it.
	time.Sleep(2 * time.Second)
	garments := app.Catalog().List()
	if len(garments) == 0 {
		return
	}
	garment := garments[math.RandomInRange(0, int32(len(garments)-1))]
	var swatch catalog.Swatch
	if len(garment.Swatches) > 0 {
		swatch = garment.Swatches[math.RandomInRange(0, int32(len(garment.Swatches)-1))]
	}
	var size string
	if len(garment.Sizes) > 0 {
		size = garment.Sizes[0]
	}
	if err := app.Scene().SetGarment(garment, swatch, size); err != nil {
		core.LogWarn("demo: could not try on %s: %s", garment.ID, err.Error())
	}
}

package main

import (
	"os"

	"github.com/pingcap/errors"
	"github.com/urfave/cli"

	zenohremotebridge "github.com/nano-kit/zenoh-remote-bridge"
	"github.com/nano-kit/zenoh-remote-bridge/internal/config"
	"github.com/nano-kit/zenoh-remote-bridge/internal/fabric/fake"
	"github.com/nano-kit/zenoh-remote-bridge/internal/log"
)

func main() {
	app := cli.NewApp()
	app.Name = "zenoh-remote-bridge"
	app.Usage = "bridges a fabric session to remote clients over a framed WebSocket protocol"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "path to a JSON/YAML/TOML config file"},
		cli.StringFlag{Name: "listen, l", Usage: "override websocket_port, e.g. [::]:10000"},
		cli.StringFlag{Name: "cert", Usage: "override secure_websocket.certificate_path"},
		cli.StringFlag{Name: "key", Usage: "override secure_websocket.private_key_path"},
		cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("zenoh-remote-bridge: %+v", err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return errors.Annotate(err, "loading configuration")
	}
	if listen := c.String("listen"); listen != "" {
		cfg.WebsocketPort = listen
	}
	if cert := c.String("cert"); cert != "" {
		cfg.SecureWebsocket.CertificatePath = cert
	}
	if key := c.String("key"); key != "" {
		cfg.SecureWebsocket.PrivateKeyPath = key
	}

	log.SetLevel(c.Bool("debug") || cfg.LogLevel == "debug")

	// TODO: swap in the real fabric client once internal/fabric grows a
	// production adapter; the in-memory fake keeps the bridge runnable
	// standalone for now.
	fab := fake.New()

	return zenohremotebridge.Listen(cfg, fab)
}

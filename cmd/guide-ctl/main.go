package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"siloso/internal/ipc"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: guide-ctl [flags] record|send|ask|reset|voice <id>|view\n")
	cli.PrintDefaults()
}

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	timeout := cli.DurationP("timeout", "t", 3*time.Minute, "Wait this long for the daemon")
	cli.Usage = usage
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	req := ipc.Request{Cmd: args[0], Arg: strings.Join(args[1:], " ")}
	if req.Cmd == "voice" && req.Arg == "" {
		fmt.Fprintln(os.Stderr, "voice needs an id: alloy, echo, fable, onyx, nova or shimmer")
		os.Exit(2)
	}

	rep, err := ipc.SendCommand(*socket, req, *timeout)
	if err != nil {
		fmt.Println("guide-daemon not running:", err)
		os.Exit(1)
	}

	if rep.View != nil {
		fmt.Print(rep.View.Text())
	}
	if !rep.OK {
		fmt.Fprintln(os.Stderr, "error:", rep.Error)
		os.Exit(1)
	}
}

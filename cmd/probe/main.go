// ABOUTME: One-shot diagnostic probe for MCP devices over TCP
// ABOUTME: Runs the handshake, lists tools, and optionally calls one

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/harper/mcp-probe/internal/client"
	"github.com/harper/mcp-probe/internal/db"
	"github.com/harper/mcp-probe/internal/framing"
	"github.com/harper/mcp-probe/internal/logger"
	"github.com/harper/mcp-probe/internal/mcp"
)

func main() {
	_ = godotenv.Load()

	host := flag.String("host", "", "device host (required)")
	port := flag.Int("port", 8080, "device TCP port")
	framingMode := flag.String("framing", "newline", "wire framing: newline or length-prefix")
	timeout := flag.Duration("timeout", 10*time.Second, "per-call timeout")
	capturePath := flag.String("capture", "", "sqlite path for message capture (optional)")
	callTool := flag.String("call", "", "tool to call after the handshake (optional)")
	callArgs := flag.String("args", "{}", "JSON arguments for -call")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	logger.SetVerbose(*verbose)

	if *host == "" {
		flag.Usage()
		os.Exit(2)
	}

	mode, err := framing.ParseMode(*framingMode)
	if err != nil {
		log.Fatalf("invalid framing: %v", err)
	}

	opts := client.Options{
		Framing:     mode,
		CallTimeout: *timeout,
		DialTimeout: *timeout,
	}

	if *capturePath != "" {
		capture, err := db.Open(*capturePath)
		if err != nil {
			log.Fatalf("failed to open capture database: %v", err)
		}
		defer capture.Close()
		opts.Capture = capture
	}

	c := client.New(*host, *port, opts)
	defer c.Disconnect()

	ctx := context.Background()

	if err := c.Connect(ctx); err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	fmt.Printf("connected to %s:%d (%s framing)\n", *host, *port, mode)

	if err := c.Initialize(ctx); err != nil {
		log.Fatalf("initialize failed: %v", err)
	}
	info := c.ServerInfo()
	fmt.Printf("device: %s %s (protocol %s)\n", info.Name, info.Version, mcp.ProtocolVersion)

	if err := c.Ping(ctx); err != nil {
		log.Fatalf("ping failed: %v", err)
	}
	fmt.Println("ping: ok")

	tools, err := c.ListTools(ctx)
	if err != nil {
		log.Fatalf("tools/list failed: %v", err)
	}
	fmt.Printf("tools (%d):\n", len(tools))
	for _, tool := range tools {
		fmt.Printf("  %-20s %s\n", tool.Name, tool.Description)
	}

	if *callTool == "" {
		return
	}

	var args json.RawMessage
	if err := json.Unmarshal([]byte(*callArgs), &args); err != nil {
		log.Fatalf("invalid -args JSON: %v", err)
	}

	res, err := c.CallTool(ctx, *callTool, args)
	if err != nil {
		log.Fatalf("tools/call failed: %v", err)
	}
	if res.RPCError != nil {
		fmt.Printf("tool error %d: %s\n", res.RPCError.Code, res.RPCError.Message)
		os.Exit(1)
	}
	for _, item := range res.Result.Content {
		if item.Type == "text" {
			fmt.Println(item.Text)
		} else {
			fmt.Printf("[%s content]\n", item.Type)
		}
	}
	if res.Result.IsError {
		os.Exit(1)
	}
}

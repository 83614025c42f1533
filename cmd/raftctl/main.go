// Command raftctl is a small CLI client for a running raftd node,
// modeled on the teacher's cmd/raft/demo/main.go interactive demo but
// driven by subcommands instead of a REPL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"raftcore/internal/raft"
	"raftcore/internal/raft/server"
	"raftcore/internal/raft/statemachine"
	"raftcore/internal/raft/transport"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: raftctl -addr <host:port> <open|delete|append|read|list|lastid|config|metrics> [args]")
	flag.PrintDefaults()
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "node address to connect to")
	timeout := flag.Duration("timeout", 5*time.Second, "rpc timeout")
	save := flag.String("save", "", "metrics: write the report as JSON to this path instead of printing it")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	client, err := transport.Dial(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	clientID := server.NewClientID()

	switch args[0] {
	case "open":
		requireArgs(args, 2, "open <logName>")
		runSubmit(ctx, client, statemachine.Command{Op: statemachine.OpOpenLog, LogName: args[1]}, clientID)

	case "delete":
		requireArgs(args, 2, "delete <logName>")
		runSubmit(ctx, client, statemachine.Command{Op: statemachine.OpDeleteLog, LogName: args[1]}, clientID)

	case "append":
		requireArgs(args, 3, "append <logName> <data>")
		runSubmit(ctx, client, statemachine.Command{Op: statemachine.OpAppend, LogName: args[1], Data: []byte(args[2])}, clientID)

	case "read":
		requireArgs(args, 2, "read <logName> [minID] [maxID]")
		var minID, maxID raft.EntryID
		if len(args) > 2 {
			minID = parseEntryID(args[2])
		}
		if len(args) > 3 {
			maxID = parseEntryID(args[3])
		}
		resp, err := client.ReadLog(ctx, transport.ReadLogRequest{LogName: args[1], MinID: minID, MaxID: maxID})
		fail(err)
		if !resp.Found {
			fmt.Println("log not found")
			return
		}
		for _, r := range resp.Records {
			fmt.Println(string(r))
		}

	case "list":
		resp, err := client.ListLogs(ctx)
		fail(err)
		for _, name := range resp.Names {
			fmt.Println(name)
		}

	case "lastid":
		resp, err := client.GetLastID(ctx)
		fail(err)
		fmt.Println(resp.ID)

	case "config":
		resp, err := client.GetConfiguration(ctx)
		fail(err)
		fmt.Printf("id=%d prev=%v next=%v\n", resp.ID, resp.Desc.Prev, resp.Desc.Next)

	case "metrics":
		resp, err := client.GetMetricsReport(ctx)
		fail(err)
		if *save != "" {
			fail(resp.Report.SaveJSON(*save))
			fmt.Println("wrote", *save)
		} else {
			resp.Report.PrintReport()
		}

	default:
		usage()
		os.Exit(2)
	}
}

func runSubmit(ctx context.Context, client *transport.NodeClient, cmd statemachine.Command, clientID uint64) {
	payload, err := statemachine.EncodeCommand(cmd)
	fail(err)
	result, err := client.Submit(ctx, transport.SubmitRequest{Payload: payload, Client: raft.ClientIdentity{ClientID: clientID, Sequence: 1}})
	fail(err)
	switch result.Code {
	case raft.ResultSuccess:
		fmt.Println("ok, entry", result.EntryID)
	case raft.ResultNotLeader:
		if result.LeaderHint != nil {
			fmt.Fprintf(os.Stderr, "not leader, try %d (%s)\n", result.LeaderHint.ID, result.LeaderHint.Address)
		} else {
			fmt.Fprintln(os.Stderr, "not leader")
		}
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, "failed:", result.Code)
		os.Exit(1)
	}
}

func requireArgs(args []string, n int, usageLine string) {
	if len(args) < n {
		fmt.Fprintln(os.Stderr, "usage: raftctl", usageLine)
		os.Exit(2)
	}
}

func parseEntryID(s string) raft.EntryID {
	n, err := strconv.ParseUint(s, 10, 64)
	fail(err)
	return raft.EntryID(n)
}

func fail(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

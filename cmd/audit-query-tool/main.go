package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/spf13/cobra"
)

func main() {
	var addr string

	var rootCmd = &cobra.Command{Use: "audit-query-tool"}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "localhost:9000", "ClickHouse address")

	// Command to list recent security events
	var recentCmd = &cobra.Command{
		Use:   "recent",
		Short: "List recent security events",
		Run: func(cmd *cobra.Command, args []string) {
			conn := connect(addr)
			defer conn.Close()

			rows, err := conn.Query(context.Background(),
				"SELECT event_type, severity, ip, detail, created_at FROM security_events ORDER BY created_at DESC LIMIT 50")
			if err != nil {
				log.Fatal(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TYPE\tSEVERITY\tIP\tDETAIL\tCREATED AT")
			for rows.Next() {
				var eventType, severity, ip, detail string
				var createdAt time.Time
				if err := rows.Scan(&eventType, &severity, &ip, &detail, &createdAt); err != nil {
					log.Fatal(err)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", eventType, severity, ip, detail, createdAt.Format(time.RFC3339))
			}
			w.Flush()
		},
	}

	// Command to find the noisiest sources
	var topIPsCmd = &cobra.Command{
		Use:   "top-ips",
		Short: "Top IPs by security event count over the last 24h",
		Run: func(cmd *cobra.Command, args []string) {
			conn := connect(addr)
			defer conn.Close()

			rows, err := conn.Query(context.Background(),
				"SELECT ip, count() AS events FROM security_events WHERE created_at > now() - INTERVAL 1 DAY GROUP BY ip ORDER BY events DESC LIMIT 20")
			if err != nil {
				log.Fatal(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "IP\tEVENTS")
			for rows.Next() {
				var ip string
				var events uint64
				if err := rows.Scan(&ip, &events); err != nil {
					log.Fatal(err)
				}
				fmt.Fprintf(w, "%s\t%d\n", ip, events)
			}
			w.Flush()
		},
	}

	rootCmd.AddCommand(recentCmd, topIPsCmd)
	rootCmd.Execute()
}

func connect(addr string) clickhouse.Conn {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
	})
	if err != nil {
		log.Fatal(err)
	}
	return conn
}

package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixgram-dev/pixgram/internal/cli/app"
)

// NewFetchCmd creates the fetch command
func NewFetchCmd() *cobra.Command {
	var method, data string

	cmd := &cobra.Command{
		Use:   "fetch <path>",
		Short: "Send an authenticated request to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var body io.Reader
			if data != "" {
				body = strings.NewReader(data)
			}
			return fetchPage(cmd.Context(), cmd.OutOrStdout(), a, strings.ToUpper(method), args[0], body)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body (sent as JSON)")

	return cmd
}

func fetchPage(ctx context.Context, w io.Writer, a *app.App, method, path string, body io.Reader) error {
	target := path
	if !strings.Contains(path, "://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target = a.BaseURL + path
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	fmt.Fprintf(w, "%s %s: %s\n", method, path, resp.Status)
	fmt.Fprintln(w, strings.TrimSpace(string(respBody)))
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/shzx/internal/services"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ProxyGet makes a direct GET request to the proxy
func (r *Runner) ProxyGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.newProxy().Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// ProxyPost makes a direct POST request to the proxy
func (r *Runner) ProxyPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.newProxy().Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

// ProxyHealth checks that the proxy answers /health.
func (r *Runner) ProxyHealth(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking proxy health")

	health, err := r.newProxy().Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("✓ Proxy is healthy\n")
	if data, ok := health.(map[string]any); ok {
		if status, ok := data["status"].(string); ok {
			r.writePlain("Status: %s\n", status)
		}
	}
	return nil
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if err := r.writeBytes(resp.Body); err != nil {
		return err
	}
	return r.writePlain("\n")
}

package main

import (
	"context"
	"fmt"

	"github.com/voyago/voyago/core/document"
	aisvc "github.com/voyago/voyago/services/ai"
)

// processJobs drains the extraction queue once. Meant to be run from cron or
// by hand when the webhook flow is not available.
func (cli *commandLine) processJobs(ctx context.Context, useMock bool, apiKey string) error {
	var extractor document.Extractor
	if useMock || cli.conf.AI.UseMock {
		extractor = aisvc.NewMockClient()
	} else {
		if apiKey != "" {
			cli.conf.AI.APIKey = apiKey
		}
		extractor = aisvc.NewGeminiClient(cli.conf, cli.logger)
	}

	processor := document.NewProcessor(cli.docSvc, extractor, cli.logger)
	processed, failed, err := processor.ProcessPending(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("processed %d job(s), %d failed\n", processed, failed)
	return nil
}

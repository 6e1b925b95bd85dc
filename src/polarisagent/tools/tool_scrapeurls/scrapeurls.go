package tool_scrapeurls

import (
	"context"
	"fmt"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/fetch"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
)

// Tool name constant
const Name = "scrapeUrls"

const scrapeUrlsPrompt = `Scrape content from URLs to get documentation or reference material. Use this when the user provides URLs or references external documentation. Returns markdown content from the scraped pages.`

const noContent = "No content could be scraped from the provided URLs."

type Input struct {
	URLs []string `json:"urls" required:"true" description:"Array of URLs to scrape for content" validate:"required,min=1,dive,url"`
}

// Page is one scraped URL.
type Page struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

func makeHandler(fetcher fetch.Fetcher, concurrency int) agent.Handler[Input] {
	return func(ctx context.Context, input Input) string {
		var pages []Page
		for _, res := range fetch.FetchAll(ctx, fetcher, input.URLs, concurrency) {
			switch {
			case res.Err != nil:
				toolsutil.GetLogger().Warn("scrape failed", "url", res.URL, "error", res.Err)
				pages = append(pages, Page{URL: res.URL, Content: fmt.Sprintf("Error scraping this URL: %s", res.URL)})
			case res.Content != "":
				pages = append(pages, Page{URL: res.URL, Content: res.Content})
			}
		}
		if len(pages) == 0 {
			return noContent
		}
		return toolsutil.JSON(pages)
	}
}

// Tool returns the scrapeUrls tool. concurrency bounds parallel fetches.
func Tool(fetcher fetch.Fetcher, concurrency int) (*agent.Tool[Input], error) {
	return agent.NewTool(Name, scrapeUrlsPrompt, makeHandler(fetcher, concurrency))
}

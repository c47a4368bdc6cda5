package main

import (
	"flag"
	"fmt"
	"os"

	"portfolio-be/internal/config"
	"portfolio-be/internal/presentation"

	"github.com/fatih/color"
)

func main() {
	docType := flag.String("type", "", "document type, e.g. home or project")
	slug := flag.String("slug", "", "document slug for collection types")
	showSecret := flag.Bool("link", false, "print the activation link (contains the preview secret)")
	flag.Parse()

	if *docType == "" {
		color.Red("Missing -type")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	resolver := presentation.NewResolver(presentation.Routes)

	locations := resolver.Resolve(*docType, *slug)
	if len(locations) == 0 {
		color.Yellow("No locations for %s %q", *docType, *slug)
		os.Exit(1)
	}

	color.Cyan("Locations for %s %s", *docType, *slug)
	for _, loc := range locations {
		fmt.Printf("  %-28s %s%s\n", loc.Title, cfg.App.BaseURL, loc.Href)
	}

	if !*showSecret {
		return
	}

	link, err := presentation.ActivationURL(cfg.App.BaseURL, cfg.Preview.Secret, locations[0].Href)
	if err != nil {
		color.Red("Cannot build activation link: %v", err)
		os.Exit(1)
	}
	color.Green("\nPreview link")
	fmt.Println("  " + link)
}

// Command garment_preview prints what the garment previewer extracts from product links.
//
//	go run ./cmd/garment_preview [-headless] [url ...]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/raushankrgupta/fitting-room/garments"
)

var defaultURLs = []string{
	"https://amzn.in/d/8sCIA5h",
	"https://www.myntra.com/tshirts/h%26m/hm-men-white-solid-cotton-pure-cotton-t-shirt-regular-fit/11468714/buy",
	"https://www.tatacliq.com/thomas-scott-black-regular-fit-checks-shirt/p-mp000000027887447",
	"https://peterengland.abfrl.in/p/men-blue-slim-fit-shirt-39903346.html?source=plp",
}

func main() {
	headless := flag.Bool("headless", false, "fall back to headless Chrome when no image is found")
	timeout := flag.Duration("timeout", 3*time.Minute, "timeout per URL")
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		urls = defaultURLs
	}

	var opts []garments.Option
	if *headless {
		opts = append(opts, garments.WithHeadless())
	}
	previewer := garments.NewPreviewer(opts...)

	for _, u := range urls {
		fmt.Printf("Testing URL: %s\n", u)

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		preview, err := previewer.Preview(ctx, u)
		cancel()
		if err != nil {
			log.Printf("Failed to preview %s: %v\n", u, err)
			continue
		}

		b, _ := json.MarshalIndent(preview, "", "  ")
		fmt.Printf("Preview: %s\n", string(b))
		fmt.Println("--------------------------------------------------")
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jkbrsn/lolcat"
)

func main() {
	text := "Hello, rainbow!"
	if len(os.Args) > 1 {
		text = strings.Join(os.Args[1:], " ")
	}

	// Color a single cell by hand with the two building blocks
	c := lolcat.Rainbow(lolcat.DefaultFrequency, 0)
	idx := lolcat.Quantize(c)
	fmt.Printf("Basic example\nRGB %+v -> palette %d: %s\n\n", c, idx, idx.Sprint("#"))

	// Render whole lines with a Painter; the caller owns the line counter
	p := lolcat.New(lolcat.WithSpread(4), lolcat.WithStart(30))
	fmt.Println("Painter example")
	counter := p.Params().Start
	for range 5 {
		counter++
		os.Stdout.WriteString(p.Line(counter, text))
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/frutero/frutero/server"
)

func main() {
	parser := argparse.NewParser("frutero", "Fruit image classifier web backend")
	hotReloadWWW := parser.Flag("", "hot", &argparse.Options{Help: "Hot reload www instead of embedding into binary", Default: false})
	configFilePath := parser.String("c", "config", &argparse.Options{Help: "Config file path", Default: "frutero.json"})
	port := parser.String("p", "port", &argparse.Options{Help: "HTTP listen address", Default: ":8080"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	s, err := server.NewServer(*configFilePath, *hotReloadWWW)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	s.ListenForKillSignals()
	if err := s.ListenHTTP(*port); err != nil {
		fmt.Printf("%v\n", err)
	}
}

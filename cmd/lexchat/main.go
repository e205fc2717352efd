package main

import "os"

func main() {
	if err := newRootCmd(newApp(os.Stdin, os.Stdout, os.Stderr)).Execute(); err != nil {
		os.Exit(1)
	}
}

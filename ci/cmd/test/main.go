package main

import (
	"context"
	"log"
	"os"

	"dagger.io/dagger"
)

func main() {
	ctx := context.Background()

	// Initialize the Dagger client
	client, err := dagger.Connect(ctx, dagger.WithLogOutput(os.Stdout))
	if err != nil {
		panic(err)
	}
	defer client.Close()

	// Use a golang:1.24 container, and mount the source code directory from the host at /src in the container.
	source := client.Container().
		From("golang:1.24").
		WithDirectory(
			"/src",
			client.Host().Directory("."), dagger.ContainerWithDirectoryOpts{
				Exclude: []string{"ci/", "_examples/"},
			},
		)

	runner := source.WithWorkdir("/src").WithExec([]string{"go", "mod", "tidy"})

	// Run application tests
	out, err := runner.WithExec([]string{"go", "test", "./..."}).Stdout(ctx)
	if err != nil {
		log.Fatalf("test: error running tests [%v]", err)
	}
	log.Printf("test: finished running tests [%s]", out)
}

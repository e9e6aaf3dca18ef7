package client_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/pollhttp/client"
	"github.com/adamwoolhether/pollhttp/transport/transporttest"
)

func ExampleClient_Get() {
	nw := transporttest.NewNetwork(func(req transporttest.Request) transporttest.Reply {
		return transporttest.Reply{
			Data:   transporttest.HTTP(http.StatusOK, map[string]string{"Content-Length": "5"}, "hello"),
			Hangup: true,
		}
	})

	ctx := context.Background()

	c, err := client.New(ctx, "example.com", 80, client.WithConnFactory(nw.Factory))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer c.Close()

	resp := c.Get(ctx, "/greeting")

	var body []byte
	for !resp.Done() {
		if resp.Ready() {
			body = append(body, resp.Drain()...)
		}
	}

	fmt.Println(resp.StatusCode(), string(body))
	// Output: 200 hello
}

func ExampleResponse_Decode() {
	nw := transporttest.NewNetwork(func(req transporttest.Request) transporttest.Reply {
		return transporttest.Reply{
			Data:   transporttest.HTTP(http.StatusOK, nil, `{"version":"1.4.0"}`),
			Hangup: true,
		}
	})

	ctx := context.Background()

	c, err := client.New(ctx, "updates.example.com", 80, client.WithConnFactory(nw.Factory))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer c.Close()

	var release struct {
		Version string `json:"version" validate:"required"`
	}
	if err := c.Get(ctx, "/release.json").Decode(ctx, &release); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(release.Version)
	// Output: 1.4.0
}

func ExampleParseTarget() {
	target, err := client.ParseTarget("http://example.com:8080/files/a.bin")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(target.Host, target.Port, target.Path)
	// Output: example.com 8080 /files/a.bin
}

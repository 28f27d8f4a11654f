// Package discovery resolves the backend base URL through Consul.
package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	consulapi "github.com/hashicorp/consul/api"
)

var ErrNoHealthyInstance = errors.New("no healthy instance")

func NewClient(addr string) (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = addr
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return client, nil
}

// GetServiceAddress returns the address and port of the first instance of
// service passing its health checks.
func GetServiceAddress(client *consulapi.Client, service string) (string, int, error) {
	entries, _, err := client.Health().Service(service, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("query consul for %s: %w", service, err)
	}
	if len(entries) == 0 {
		return "", 0, fmt.Errorf("%s: %w", service, ErrNoHealthyInstance)
	}

	e := entries[0]
	address := e.Service.Address
	if address == "" {
		address = e.Node.Address
	}
	return address, e.Service.Port, nil
}

// BackendURL builds http://host:port<path> for the discovered service.
func BackendURL(client *consulapi.Client, service, path string) (string, error) {
	address, port, err := GetServiceAddress(client, service)
	if err != nil {
		return "", err
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + net.JoinHostPort(address, strconv.Itoa(port)) + strings.TrimRight(path, "/"), nil
}

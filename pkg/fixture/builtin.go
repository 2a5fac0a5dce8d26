package fixture

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
	p "github.com/jhwagner/mapping-fixtures/pkg/property"
)

const (
	BrokerFixtureName   = "broker"
	AppHistoFixtureName = "apphisto"
	NetworkFixtureName  = "network"
)

var builtins = map[string]func() config.Fixture{
	BrokerFixtureName:   BrokerFixture,
	AppHistoFixtureName: AppHistoFixture,
	NetworkFixtureName:  NetworkFixture,
}

// BuiltinNames returns the names of the built-in fixtures, sorted
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a fresh copy of a built-in fixture definition
func Builtin(name string) (config.Fixture, bool) {
	build, ok := builtins[name]
	if !ok {
		return config.Fixture{}, false
	}
	return build(), true
}

// LoadBrokerFixture loads a message broker: one vhost with a queue and an
// exchange, the exchange linked to the queue
func LoadBrokerFixture(ctx context.Context, client Client) (*Result, error) {
	f := BrokerFixture()
	return Apply(ctx, client, &f)
}

// LoadAppHistoFixture loads an application historization cluster spread
// over two twinned containers
func LoadAppHistoFixture(ctx context.Context, client Client) (*Result, error) {
	f := AppHistoFixture()
	return Apply(ctx, client, &f)
}

// LoadNetworkFixture loads a router and a switch wired through their
// interfaces
func LoadNetworkFixture(ctx context.Context, client Client) (*Result, error) {
	f := NetworkFixture()
	return Apply(ctx, client, &f)
}

// BrokerFixture is the message broker topology
func BrokerFixture() config.Fixture {
	return config.Fixture{
		Name:        BrokerFixtureName,
		Description: "RabbitMQ broker: vhost, queue A1 and exchange E1 bound to it",
		Containers: []config.Container{
			{
				Ref:           "rabbit",
				AdminGateURL:  "http://localhost:15672",
				AdminGateName: "webadmin",
				Company:       "Pivotal",
				Product:       "RabbitMQ",
				Type:          "Message Broker",
				Properties: []config.Property{
					{Name: "Server", Value: p.Map{
						"version":        p.String("3.5.0"),
						"erlang_version": p.String("R16B03"),
						"uptime":         p.Long(15072),
						"statistics":     p.String("fine"),
					}},
					{Name: "Listeners", Value: p.Array{Elem: p.TypeMap, Items: []p.Value{
						p.Map{"protocol": p.String("amqp"), "ip_address": p.String("::"), "port": p.Integer(5672)},
						p.Map{"protocol": p.String("clustering"), "ip_address": p.String("::"), "port": p.Integer(25672)},
					}}},
				},
				Nodes: []config.Node{
					{
						Ref:  "vhost",
						Name: "/ (vhost)",
						Properties: []config.Property{
							{Name: "Details", Value: p.Map{"tracing": p.Boolean(false)}},
						},
						Nodes: []config.Node{
							{
								Ref:  "queueA1",
								Name: "queue A1",
								Properties: []config.Property{
									{Name: "Arguments", Value: p.Map{
										"durable":       p.Boolean(true),
										"auto_delete":   p.Boolean(false),
										"x-message-ttl": p.Long(60000),
									}},
								},
								Endpoints: []config.Endpoint{
									{Ref: "queueA1-ep", URL: "amqp://localhost:5672/%2F/queueA1"},
								},
							},
							{
								Ref:  "exchangeE1",
								Name: "exchange E1",
								Properties: []config.Property{
									{Name: "Arguments", Value: p.Map{
										"type":    p.String("direct"),
										"durable": p.Boolean(true),
									}},
								},
								Endpoints: []config.Endpoint{
									{
										Ref: "exchangeE1-ep",
										URL: "amqp://localhost:5672/%2F/exchangeE1",
										Properties: []config.Property{
											{Name: "Bindings", Value: p.Array{Elem: p.TypeString, Items: []p.Value{
												p.String("queue A1"),
											}}},
										},
									},
								},
							},
						},
					},
				},
			},
		},
		Links: []config.Link{
			{Source: "exchangeE1-ep", Target: "queueA1-ep", Transport: "amqp://"},
		},
	}
}

// AppHistoFixture is the application historization cluster topology
func AppHistoFixture() config.Fixture {
	return config.Fixture{
		Name:        AppHistoFixtureName,
		Description: "historization cluster: primary and replica servers declared twins",
		Containers: []config.Container{
			histoContainer("app6969", "primary", 48.8566, 2.3522, "Paris"),
			histoContainer("app6970", "replica", 45.7640, 4.8357, "Lyon"),
		},
		Links: []config.Link{
			{Source: "app6969-ep", Target: "app6970-ep", Transport: "tcp-histo://"},
		},
	}
}

func histoContainer(host, role string, lat, lng float64, town string) config.Container {
	twin := map[string]string{"app6969": "app6970", "app6970": "app6969"}[host]
	return config.Container{
		Ref:           host,
		AdminGateURL:  fmt.Sprintf("ssh://%s.lab.local", host),
		AdminGateName: "sshd",
		Company:       "Acme Corp",
		Product:       "Histo Server",
		Type:          "Application Server",
		Properties: []config.Property{
			{Name: "Datacenter", Value: p.Map{
				"dc":      p.String("DC" + town),
				"town":    p.String(town),
				"country": p.String("France"),
				"gpsLat":  p.Double(lat),
				"gpsLng":  p.Double(lng),
			}},
			{Name: "Network", Value: p.Map{
				"subnetIP":   p.String("192.168.33.0"),
				"subnetMask": p.String("255.255.255.0"),
				"vlan":       p.Integer(33),
				"dhcp":       p.Boolean(false),
			}},
		},
		Nodes: []config.Node{
			{
				Ref:   host,
				Name:  fmt.Sprintf("%s.histo-cluster", host),
				Twins: []string{twin},
				Properties: []config.Property{
					{Name: "Replication", Value: p.Map{
						"role":   p.String(role),
						"lagSec": p.Double(0.5),
						"checkpoints": p.Array{Elem: p.TypeLong, Items: []p.Value{
							p.Long(1420070400000), p.Long(1420156800000),
						}},
					}},
				},
				Endpoints: []config.Endpoint{
					{
						Ref:   host + "-ep",
						URL:   fmt.Sprintf("tcp://%s.lab.local:7500/histo", host),
						Twins: []string{twin + "-ep"},
						Properties: []config.Property{
							{Name: "Socket", Value: p.Map{
								"sendBuffer": p.Integer(65536),
								"keepAlive":  p.Boolean(true),
							}},
						},
					},
				},
			},
		},
	}
}

// NetworkFixture is the router and switch topology
func NetworkFixture() config.Fixture {
	return config.Fixture{
		Name:        NetworkFixtureName,
		Description: "edge router uplinked to an access switch",
		Containers: []config.Container{
			{
				Ref:           "router",
				AdminGateURL:  "ssh://rtr-edge-01.lab.local",
				AdminGateName: "cli",
				Company:       "Cisco",
				Product:       "ISR 4331",
				Type:          "Network Router",
				Properties: []config.Property{
					{Name: "Routing", Value: p.Map{
						"bgpAS":    p.Long(65001),
						"ospfArea": p.String("0.0.0.0"),
					}},
					{Name: "Uplinks", Value: p.Array{Elem: p.TypeString, Items: []p.Value{
						p.String("GigabitEthernet0/0/0"),
						p.String("GigabitEthernet0/0/1"),
					}}},
				},
				Nodes: []config.Node{
					{
						Name: "chassis",
						Nodes: []config.Node{
							networkInterface("rtr-ge000", "GigabitEthernet0/0/0", "10.0.0.1", 1000),
							networkInterface("rtr-ge001", "GigabitEthernet0/0/1", "10.0.1.1", 1000),
						},
					},
				},
			},
			{
				Ref:           "switch",
				AdminGateURL:  "ssh://sw-access-01.lab.local",
				AdminGateName: "cli",
				Company:       "Cisco",
				Product:       "Catalyst 2960",
				Type:          "Network Switch",
				Properties: []config.Property{
					{Name: "Vlans", Value: p.Array{Elem: p.TypeArray, Items: []p.Value{
						p.Array{Elem: p.TypeInteger, Items: []p.Value{p.Integer(10), p.Integer(20)}},
						p.Array{Elem: p.TypeInteger, Items: []p.Value{p.Integer(33)}},
					}}},
				},
				Nodes: []config.Node{
					{
						Name: "chassis",
						Nodes: []config.Node{
							networkInterface("sw-gi01", "GigabitEthernet0/1", "10.0.0.2", 1000),
							networkInterface("sw-gi02", "GigabitEthernet0/2", "10.0.2.1", 100),
						},
					},
				},
			},
		},
		Links: []config.Link{
			{Source: "rtr-ge000-ep", Target: "sw-gi01-ep", Transport: "ethernet://"},
			{Source: "sw-gi01-ep", Target: "rtr-ge000-ep", Transport: "ethernet://"},
		},
	}
}

func networkInterface(ref, name, ip string, speedMbps int32) config.Node {
	return config.Node{
		Ref:  ref,
		Name: name,
		Properties: []config.Property{
			{Name: "Interface", Value: p.Map{
				"ip":        p.String(ip),
				"speedMbps": p.Integer(speedMbps),
				"up":        p.Boolean(true),
			}},
		},
		Endpoints: []config.Endpoint{
			{Ref: ref + "-ep", URL: fmt.Sprintf("ip://%s", ip)},
		},
	}
}

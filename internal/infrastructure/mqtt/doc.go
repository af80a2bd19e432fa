// Package mqtt provides MQTT client connectivity for IRLogic Core.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// IRLogic uses MQTT to connect the Core to IR receiver bridges. A bridge
// sits next to receiver hardware (LIRC, GPIO, serial decoder boards) and
// publishes decoded protocol/device/command triples; Core subscribes,
// translates them against the keymap tree, and publishes key events back.
//
//	Receiver Bridges → MQTT Broker → IRLogic Core → MQTT Broker → Consumers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to decoded signals from all receivers
//	err = client.Subscribe(mqtt.Topics{}.AllIRDecoded(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a translated key event
//	topic := mqtt.Topics{}.KeyEvent("living-room-tv")
//	client.Publish(topic, []byte(`{"keycode":116,"value":1}`), 1, false)
package mqtt

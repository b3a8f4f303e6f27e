// Package mqtt provides MQTT connectivity for psusim.
//
// The simulator publishes a retained state message and a change event for
// each supply on every change notification, and accepts property writes and
// configuration updates on command topics. See Topics for the layout.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllParams(), 1,
//	    func(topic string, payload []byte) error {
//	        key, _ := mqtt.ParseParam(topic)
//	        return sim.ApplyParam(key, string(payload))
//	    })
//
// TLS should be enabled for any broker outside the local machine
// (cfg.Broker.TLS=true).
package mqtt

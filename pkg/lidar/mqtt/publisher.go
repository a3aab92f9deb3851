package mqtt

import (
	"context"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/lidar.go/pkg/lidar"
	"github.com/robotalks/lidar.go/pkg/lidar/msgs"
)

// PubQueue publishes messages.
type PubQueue interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Publisher publishes scans of a sensor, and its metadata as a retained
// message which is cleared on exit or by the will when the connection drops.
type Publisher struct {
	Queue *Queue
	Info  msgs.SensorInfo

	pub  PubQueue
	meta []byte
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL string, info msgs.SensorInfo) (*Publisher, error) {
	meta, err := msgs.EncodeMeta(info)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.MetaTopic(), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("lidar:" + info.ID)
	}
	p := &Publisher{
		Queue: NewQueue(opts, topicPrefix),
		Info:  info,
		meta:  meta,
	}
	p.pub = p.Queue
	p.Queue.OnConnect = func(*Queue) { p.publishMeta() }
	return p, nil
}

// HandleScan implements lidar.ScanHandler.
func (p *Publisher) HandleScan(ctx context.Context, s *lidar.Scan) {
	payload, err := msgs.EncodeScan(s)
	if err != nil {
		glog.Errorf("encode scan %d error: %v", s.Revolution, err)
		return
	}
	p.pub.PubWith(p.Info.ScanTopic(), payload, 0, false)
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	token := p.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	p.pub.PubWith(p.Info.MetaTopic(), nil, 1, true).Wait()
	return p.Queue.Close()
}

func (p *Publisher) publishMeta() {
	p.pub.PubWith(p.Info.MetaTopic(), p.meta, 1, true)
}

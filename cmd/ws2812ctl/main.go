package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/ledcore/ws2812d/system/devfile"
	"github.com/ledcore/ws2812d/system/pixel"
	"github.com/ledcore/ws2812d/system/shared"

	"github.com/pkg/errors"
)

// defaultPattern is a three state rotation of red, green and blue over
// three pixels, used when no pattern file is given
var defaultPattern = []pixel.Pixel{
	{R: 0x41}, {G: 0x41}, {B: 0x41},
	{G: 0x41}, {B: 0x41}, {R: 0x41},
	{B: 0x41}, {R: 0x41}, {G: 0x41},
}

func main() {
	var (
		socketPath  = flag.String("socket", shared.DefaultSocketPath, "path of the daemon socket")
		length      = flag.Int("length", -1, "set the strip length")
		setStatic   = flag.Bool("static", false, "switch the strip to static mode")
		setBlink    = flag.Bool("blink", false, "switch the strip to blink mode")
		blinkDelay  = flag.Int("delay", 500, "milliseconds between blink patterns")
		patternFile = flag.String("pattern", "", `pattern file: "pattern_len pattern_count r g b ..."`)
		pixelFile   = flag.String("pixels", "", `pixel data file: "length offset r g b ..."`)
		clear       = flag.Bool("clear", false, "clear the strip")
		getLength   = flag.Bool("get-length", false, "print the strip length")
		getMode     = flag.Bool("get-mode", false, "print the active mode")
		getData     = flag.Bool("get-data", false, "print the strip pixels")
		getModeData = flag.Bool("get-mode-data", false, "print the active mode's pixels")
	)
	flag.Parse()

	conn, err := net.Dial("unixpacket", *socketPath)
	if err != nil {
		log.Fatalf("cannot connect to daemon: %+v\n", err)
	}
	defer conn.Close()
	c := &client{conn: conn}

	if *length >= 0 {
		c.must(c.write(devfile.EncodeLen(uint16(*length))))
	}
	if *setStatic {
		c.must(c.write(devfile.EncodeSetMode(devfile.SetMode{Mode: devfile.ModeStatic})))
	}
	if *setBlink {
		c.must(c.startBlink(uint16(*blinkDelay), *patternFile))
	}
	if *pixelFile != "" {
		c.must(c.updatePixels(*pixelFile))
	}
	if *clear {
		c.must(c.write(devfile.EncodeClear()))
	}
	if *getLength || *getMode || *getData || *getModeData {
		c.must(c.query(*getLength, *getMode, *getData, *getModeData))
	}
}

type client struct {
	conn net.Conn
}

func (c *client) must(err error) {
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}

// write sends one device write and checks the daemon's status reply
func (c *client) write(packets ...[]byte) error {
	msg := []byte{shared.VerbWrite}
	for _, p := range packets {
		msg = append(msg, p...)
	}
	reply, err := c.roundTrip(msg)
	if err != nil {
		return err
	}
	if reply[0] != shared.StatusOK {
		return errors.Errorf("daemon rejected write: %s", string(reply[1:]))
	}
	return nil
}

// read asks the daemon for one queued reply payload
func (c *client) read() ([]byte, error) {
	reply, err := c.roundTrip([]byte{shared.VerbRead})
	if err != nil {
		return nil, err
	}
	if reply[0] != shared.StatusOK {
		return nil, errors.Errorf("daemon rejected read: %s", string(reply[1:]))
	}
	return reply[1:], nil
}

func (c *client) roundTrip(msg []byte) ([]byte, error) {
	if _, err := c.conn.Write(msg); err != nil {
		return nil, errors.Wrap(err, "cannot send to daemon")
	}
	buf := make([]byte, shared.MaxMessageSize)
	n, err := c.conn.Read(buf)
	if err != nil {
		return nil, errors.Wrap(err, "cannot receive from daemon")
	}
	if n == 0 {
		return nil, errors.New("empty reply from daemon")
	}
	return buf[:n], nil
}

// startBlink switches to blink mode and uploads the pattern
func (c *client) startBlink(delay uint16, patternFile string) error {
	patternLen, patternCount := uint16(3), uint16(3)
	pattern := defaultPattern

	if patternFile != "" {
		var err error
		patternLen, patternCount, pattern, err = readPatternFile(patternFile)
		if err != nil {
			return err
		}
	}

	if err := c.write(devfile.EncodeSetMode(devfile.SetMode{
		Mode:         devfile.ModeBlink,
		PatternCount: uint8(patternCount),
		PatternLen:   uint8(patternLen),
		BlinkPeriod:  delay,
	})); err != nil {
		return err
	}
	return c.write(devfile.EncodePixelData(0, pattern))
}

// updatePixels uploads the pixels from the file
func (c *client) updatePixels(pixelFile string) error {
	offset, pixels, err := readPixelFile(pixelFile)
	if err != nil {
		return err
	}
	return c.write(devfile.EncodePixelData(offset, pixels))
}

// query queues the requested reads in one write, then drains the replies.
// The daemon answers strictly in request order.
func (c *client) query(getLength, getMode, getData, getModeData bool) error {
	var requests [][]byte
	if getLength {
		requests = append(requests, devfile.EncodeGetData(devfile.DataLen))
	}
	if getMode {
		requests = append(requests, devfile.EncodeGetData(devfile.DataMode))
	}
	if getData {
		requests = append(requests, devfile.EncodeGetData(devfile.DataPixel))
	}
	if getModeData {
		requests = append(requests, devfile.EncodeGetData(devfile.DataModePixel))
	}

	if err := c.write(requests...); err != nil {
		return err
	}

	for range requests {
		payload, err := c.read()
		if err != nil {
			return err
		}
		if len(payload) == 0 {
			return errors.New("daemon returned no data")
		}
		if _, err := devfile.Parse(payload, &printer{}); err != nil {
			return errors.Wrap(err, "cannot decode daemon reply")
		}
	}
	return nil
}

// printer prints reply packets; it sees only the packet types the daemon
// produces on the read path
type printer struct{}

var _ devfile.Handler = &printer{}

func (p *printer) SetLength(length uint16) error {
	fmt.Printf("Length: %d\n", length)
	return nil
}

func (p *printer) SetPixelData(offset uint16, data []pixel.Pixel) error {
	fmt.Printf("Got %d led pixel:\n", len(data))
	for i, px := range data {
		fmt.Printf("Pixel[%03d]{r = %x, g = %x, b = %x}\n", int(offset)+i, px.R, px.G, px.B)
	}
	return nil
}

func (p *printer) SetMode(m devfile.SetMode) error {
	switch m.Mode {
	case devfile.ModeStatic:
		fmt.Println("Mode: static")
	case devfile.ModeBlink:
		fmt.Printf("Mode: blink{pattern_count = %d, pattern_len = %d, blink_period = %d}\n",
			m.PatternCount, m.PatternLen, m.BlinkPeriod)
	}
	return nil
}

func (p *printer) Clear() error {
	return nil
}

func (p *printer) GetData(dataType byte) error {
	return nil
}

// readPatternFile parses "pattern_len pattern_count r g b ..." with
// whitespace separated decimal values
func readPatternFile(path string) (uint16, uint16, []pixel.Pixel, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "cannot open pattern file")
	}
	defer f.Close()

	var patternLen, patternCount uint16
	if _, err := fmt.Fscan(f, &patternLen, &patternCount); err != nil {
		return 0, 0, nil, errors.Wrap(err, "cannot read pattern header")
	}
	pixels, err := readPixels(f, int(patternLen)*int(patternCount))
	if err != nil {
		return 0, 0, nil, err
	}
	return patternLen, patternCount, pixels, nil
}

// readPixelFile parses "length offset r g b ..." with whitespace separated
// decimal values
func readPixelFile(path string) (uint16, []pixel.Pixel, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, errors.Wrap(err, "cannot open pixel data file")
	}
	defer f.Close()

	var length, offset uint16
	if _, err := fmt.Fscan(f, &length, &offset); err != nil {
		return 0, nil, errors.Wrap(err, "cannot read pixel data header")
	}
	pixels, err := readPixels(f, int(length))
	if err != nil {
		return 0, nil, err
	}
	return offset, pixels, nil
}

func readPixels(f *os.File, count int) ([]pixel.Pixel, error) {
	pixels := make([]pixel.Pixel, count)
	for i := range pixels {
		var r, g, b uint8
		if _, err := fmt.Fscan(f, &r, &g, &b); err != nil {
			return nil, errors.Wrapf(err, "cannot read pixel %d", i)
		}
		pixels[i] = pixel.Pixel{R: r, G: g, B: b}
	}
	return pixels, nil
}

package console

import (
	"fmt"
	"time"

	"folio/internal/application/port"
)

type Sink struct{}

func NewSink() port.Sink { return &Sink{} }

func (s *Sink) WriteReport(ts time.Time, lines []string) error {
	fmt.Print("\n")
	fmt.Printf("%s\n", ts.Format("2006-01-02 15:04:05"))
	for _, line := range lines {
		fmt.Println(line)
	}
	fmt.Print("\n")
	return nil
}

func (s *Sink) NewLine() error {
	fmt.Print("\n")
	return nil
}

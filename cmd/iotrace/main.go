// Command iotrace runs the traced file I/O service and its load generator.
package main

func main() {
	Execute()
}

package main

import (
	agora "Agora"
)

func main() {
	agora.Run()
}

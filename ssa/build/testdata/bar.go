package main

func bar(n int) {
	if n < 0 {
		panic("negative")
	}
}

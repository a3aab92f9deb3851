// Package lidar decodes the packet stream of a spinning lidar.
package lidar

// The sensor streams 22-byte packets over a serial link, each covering
// 4 consecutive degrees of a revolution:
//
//	0      start byte 0xFA
//	1      index byte 0xA0..0xF9 (90 sectors of 4 degrees)
//	2-3    rotation speed, little-endian, RPM*64
//	4-19   4 data groups: distance (14 bits + 2 flag bits), strength
//	20-21  checksum over bytes 0-19
//
// Parser resynchronizes byte by byte, so a start byte hidden in noise or
// inside a corrupted packet is never skipped.

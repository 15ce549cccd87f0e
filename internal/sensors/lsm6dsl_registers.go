// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// lsm6dslRegisterMap returns metadata for the LSM6DSL registers the detector
// touches, plus the status and output registers useful when debugging.
func lsm6dslRegisterMap() []RegisterInfo {
	return []RegisterInfo{
		// Identification
		{Address: "0x0F", Name: "WHO_AM_I", Description: "Device identification", Access: "R", Default: "0x6A",
			BitFields: []BitField{
				{Bits: "7:0", Name: "WHO_AM_I", Description: "Fixed device ID", Values: "0x6A"},
			}},

		// Control Registers
		{Address: "0x10", Name: "CTRL1_XL", Description: "Accelerometer control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:4", Name: "ODR_XL", Description: "Accelerometer output data rate", Values: "0=Off, 1=12.5Hz, 2=26Hz, 3=52Hz, 4=104Hz, 5=208Hz, 6=416Hz, 7=833Hz, 8=1.66kHz"},
				{Bits: "3:2", Name: "FS_XL", Description: "Accelerometer full scale", Values: "0=±2g, 1=±16g, 2=±4g, 3=±8g"},
				{Bits: "1", Name: "LPF1_BW_SEL", Description: "Digital LPF1 bandwidth", Values: "0=ODR/2, 1=ODR/4"},
				{Bits: "0", Name: "BW0_XL", Description: "Analog chain bandwidth", Values: "0=1.5kHz, 1=400Hz"},
			}},
		{Address: "0x11", Name: "CTRL2_G", Description: "Gyroscope control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:4", Name: "ODR_G", Description: "Gyroscope output data rate", Values: "0=Off, 1=12.5Hz, 2=26Hz, 3=52Hz, 4=104Hz, 5=208Hz, 6=416Hz, 7=833Hz, 8=1.66kHz"},
				{Bits: "3:2", Name: "FS_G", Description: "Gyroscope full scale", Values: "0=±250dps, 1=±500dps, 2=±1000dps, 3=±2000dps"},
				{Bits: "1", Name: "FS_125", Description: "Gyroscope ±125 dps", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x12", Name: "CTRL3_C", Description: "Common control", Access: "RW", Default: "0x04",
			BitFields: []BitField{
				{Bits: "7", Name: "BOOT", Description: "Reboot memory content", Values: "0=Normal, 1=Reboot"},
				{Bits: "6", Name: "BDU", Description: "Block data update", Values: "0=Continuous, 1=Hold until both bytes read"},
				{Bits: "5", Name: "H_LACTIVE", Description: "Interrupt activation level", Values: "0=Active high, 1=Active low"},
				{Bits: "4", Name: "PP_OD", Description: "INT pad output", Values: "0=Push-pull, 1=Open drain"},
				{Bits: "3", Name: "SIM", Description: "SPI mode", Values: "0=4-wire, 1=3-wire"},
				{Bits: "2", Name: "IF_INC", Description: "Auto-increment address on burst access", Values: "0=Disabled, 1=Enabled"},
				{Bits: "1", Name: "BLE", Description: "Big/little endian", Values: "0=LSB at lower address, 1=MSB at lower address"},
				{Bits: "0", Name: "SW_RESET", Description: "Software reset", Values: "0=Normal, 1=Reset"},
			}},
		{Address: "0x13", Name: "CTRL4_C", Description: "Common control 4", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "3", Name: "I2C_disable", Description: "Disable I2C interface", Values: "0=Enabled, 1=SPI only"},
				{Bits: "1", Name: "LPF1_SEL_G", Description: "Gyroscope digital LPF1", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x15", Name: "CTRL6_C", Description: "Common control 6", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "4", Name: "XL_HM_MODE", Description: "Accelerometer high-performance mode", Values: "0=Enabled, 1=Disabled"},
				{Bits: "1:0", Name: "FTYPE", Description: "Gyroscope LPF1 bandwidth", Values: "0-3"},
			}},
		{Address: "0x16", Name: "CTRL7_G", Description: "Gyroscope control 7", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "G_HM_MODE", Description: "Gyroscope high-performance mode", Values: "0=Enabled, 1=Disabled"},
				{Bits: "6", Name: "HP_EN_G", Description: "Gyroscope high-pass filter", Values: "0=Disabled, 1=Enabled"},
			}},

		// Status
		{Address: "0x1E", Name: "STATUS_REG", Description: "Data ready status", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "2", Name: "TDA", Description: "Temperature data available", Values: ""},
				{Bits: "1", Name: "GDA", Description: "Gyroscope data available", Values: ""},
				{Bits: "0", Name: "XLDA", Description: "Accelerometer data available", Values: ""},
			}},

		// Sensor Data Registers (Read-Only)
		{Address: "0x20", Name: "OUT_TEMP_L", Description: "Temperature low byte", Access: "R"},
		{Address: "0x21", Name: "OUT_TEMP_H", Description: "Temperature high byte", Access: "R"},
		{Address: "0x22", Name: "OUTX_L_G", Description: "Gyroscope X low byte", Access: "R"},
		{Address: "0x23", Name: "OUTX_H_G", Description: "Gyroscope X high byte", Access: "R"},
		{Address: "0x24", Name: "OUTY_L_G", Description: "Gyroscope Y low byte", Access: "R"},
		{Address: "0x25", Name: "OUTY_H_G", Description: "Gyroscope Y high byte", Access: "R"},
		{Address: "0x26", Name: "OUTZ_L_G", Description: "Gyroscope Z low byte", Access: "R"},
		{Address: "0x27", Name: "OUTZ_H_G", Description: "Gyroscope Z high byte", Access: "R"},
		{Address: "0x28", Name: "OUTX_L_XL", Description: "Accelerometer X low byte", Access: "R"},
		{Address: "0x29", Name: "OUTX_H_XL", Description: "Accelerometer X high byte", Access: "R"},
		{Address: "0x2A", Name: "OUTY_L_XL", Description: "Accelerometer Y low byte", Access: "R"},
		{Address: "0x2B", Name: "OUTY_H_XL", Description: "Accelerometer Y high byte", Access: "R"},
		{Address: "0x2C", Name: "OUTZ_L_XL", Description: "Accelerometer Z low byte", Access: "R"},
		{Address: "0x2D", Name: "OUTZ_H_XL", Description: "Accelerometer Z high byte", Access: "R"},
	}
}
